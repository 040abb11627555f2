// Package output names result files and writes them to a sink.
package output

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// TimestampLayout is the timestamp embedded in every output name.
const TimestampLayout = "2006-01-02T15-04-05"

// Namer builds "<dir>/<operation>-<timestamp><ext>" names. Names always use
// forward slashes; LocalSink converts them for the host OS.
type Namer struct {
	Dir       string
	Operation string
	At        time.Time
}

func NewNamer(dir, operation string, at time.Time) Namer {
	return Namer{Dir: dir, Operation: operation, At: at}
}

func (n Namer) base(kind string) string {
	name := n.Operation
	if kind != "" {
		name += "-" + kind
	}
	return path.Join(n.dir(), name+"-"+n.At.Format(TimestampLayout))
}

func (n Namer) dir() string {
	if n.Dir == "" {
		return "."
	}
	return strings.ReplaceAll(n.Dir, "\\", "/")
}

// Single names the only output of a job.
func (n Namer) Single(ext string) string {
	return n.base("") + dotted(ext)
}

// Indexed names output i (0-based) of a multi-output job.
func (n Namer) Indexed(i int, ext string) string {
	return fmt.Sprintf("%s_%d%s", n.base(""), i, dotted(ext))
}

// Report names a job's secondary report output.
func (n Namer) Report(ext string) string {
	return n.base("report") + dotted(ext)
}

// Resource names a job's secondary resource output.
func (n Namer) Resource(ext string) string {
	return n.base("resource") + dotted(ext)
}

func dotted(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
