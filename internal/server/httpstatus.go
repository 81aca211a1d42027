// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"html/template"
	"net/http"

	"github.com/golang/glog"

	"github.com/google/vfsnotify/internal/resource"
)

var statusTemplate = template.Must(template.New("status").Parse(`
<!DOCTYPE html>
<html>
<head>
<title>vfsnotify on {{.BindAddress}}</title>
</head>
<body>
<h1>vfsnotify on {{.BindAddress}}</h1>
<p>Build: {{.BuildInfo}}</p>
<p>Metrics: <a href="/metrics">prometheus</a></p>
<p>Info: <a href="/tracez">tracez</a>, <a href="/rpcz">rpcz</a></p>
<p>Debug: {{ if .HTTPDebugEndpoints }}<a href="/debug/pprof">debug/pprof</a>, <a href="/debug/vars">debug/vars</a>{{ else }} disabled {{ end }}</p>
<h2>Resources</h2>
<table border=1>
<tr>
<th>path</th>
<th>type</th>
<th>listeners</th>
</tr>
{{range .Nodes}}
<tr>
<td>{{.Path}}</td>
<td>{{if .Dir}}folder{{else}}file{{end}}</td>
<td>{{.Listeners}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

type nodeStatus struct {
	Path      string
	Dir       bool
	Listeners int
}

// ServeHTTP satisfies the http.Handler interface, and is used to serve the
// root page of vfsnotify for online status reporting.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var nodes []nodeStatus
	err := s.tree.Walk(func(path string, n *resource.Node) error {
		nodes = append(nodes, nodeStatus{path, n.IsDir(), n.ListenerCount()})
		return nil
	})
	if err != nil {
		glog.Warningf("Error while walking resource tree: %s", err)
	}

	data := struct {
		BindAddress        string
		BuildInfo          string
		HTTPDebugEndpoints bool
		Nodes              []nodeStatus
	}{
		s.Addr(),
		s.buildInfo.String(),
		s.httpDebugEndpoints,
		nodes,
	}
	w.Header().Add("Content-type", "text/html")
	w.WriteHeader(http.StatusOK)
	if err = statusTemplate.Execute(w, data); err != nil {
		glog.Warningf("Error while writing status page: %s", err)
	}
}
