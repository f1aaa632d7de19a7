package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orDash": func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.Device}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.Device}}</h1>

<h2>Channels</h2>
<table>
<tr><th>Channel</th><th>Last Gesture</th><th>Count</th></tr>
{{range .Channels}}<tr><td>{{.Name}}</td><td>{{orDash .LastGesture}}</td><td>{{.Gestures}}</td></tr>
{{end}}</table>

<h2>Reset Sequence</h2>
<table>
<tr><th>Double presses</th><td class="{{if gt .ResetCount 0}}warn{{end}}">{{.ResetCount}} / {{.Config.ResetThreshold}}</td></tr>
<tr><th>Scope</th><td>{{.Config.ResetScope}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Network</th><td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Provisioning AP</th><td>{{if .Provisioning}}active{{else}}off{{end}}</td></tr>
<tr><th>HomeKit</th><td class="{{if .HomeKitStarted}}connected{{else}}disconnected{{end}}">{{if .HomeKitStarted}}running{{else}}stopped{{end}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// The template ranges over channels in a stable order; Snapshot has
	// an Uptime() method but the template needs a Duration field.
	type channelRow struct {
		Name        string
		LastGesture string
		Gestures    int
	}

	names := make([]string, 0, len(snap.Channels))
	for name := range snap.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]channelRow, 0, len(names))
	for _, name := range names {
		ch := snap.Channels[name]
		rows = append(rows, channelRow{
			Name:        name,
			LastGesture: string(ch.LastGesture),
			Gestures:    ch.Gestures,
		})
	}

	data := struct {
		status.Snapshot
		Channels []channelRow
		Uptime   time.Duration
	}{
		Snapshot: snap,
		Channels: rows,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
