package viz

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ruivieira/nolead"
)

// Source is the read-only snapshot surface a Pipeline exposes.
type Source interface {
	Tasks() []nolead.TaskInfo
	ParallelGroups() map[string][]string
	CacheKeys() []string
}

// edge identifies a dependency observation: From was requested by To.
type edge struct {
	From string
	To   string
}

// edgeParams recovers the literal parameters that flowed on each dependency
// edge by matching cache keys of the form "name(param=value,...)" against the
// recorded edges. The edges themselves are structural and parameter-agnostic;
// the most recent keyed invocation of a dependency wins.
func edgeParams(src Source) map[edge]map[string]string {
	tasks := src.Tasks()
	params := make(map[edge]map[string]string)

	for _, key := range src.CacheKeys() {
		open := strings.Index(key, "(")
		if open < 0 {
			continue
		}
		name := key[:open]
		paramStr := strings.TrimSuffix(key[open+1:], ")")

		kv := make(map[string]string)
		for _, pair := range strings.Split(paramStr, ",") {
			if k, v, ok := strings.Cut(pair, "="); ok {
				kv[k] = v
			}
		}

		for _, task := range tasks {
			for _, dep := range task.DependsOn {
				if dep == name {
					params[edge{From: name, To: task.Name}] = kv
				}
			}
		}
	}
	return params
}

func formatParams(kv map[string]string) string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, kv[k]))
	}
	return strings.Join(parts, ", ")
}

// includeSet resolves the optional include filter; empty means all tasks.
func includeSet(src Source, include []string) map[string]bool {
	set := make(map[string]bool)
	if len(include) > 0 {
		for _, name := range include {
			set[name] = true
		}
		return set
	}
	for _, task := range src.Tasks() {
		set[task.Name] = true
	}
	return set
}

// isParallelMember reports whether dep reached to through a fan-out: dep is a
// member of some parallel group that to itself is not part of.
func isParallelMember(groups map[string][]string, dep, to string) bool {
	for _, members := range groups {
		inGroup := false
		toInGroup := false
		for _, m := range members {
			if m == dep {
				inGroup = true
			}
			if m == to {
				toInGroup = true
			}
		}
		if inGroup && !toInGroup {
			return true
		}
	}
	return false
}

// WriteDOT writes the dependency graph in Graphviz DOT format. Source tasks
// are colored green, intermediates yellow and sinks blue; parallel groups are
// rendered as dashed clusters, and edges carry the parameter values recovered
// from cache keys. include limits the graph to the named tasks; leave it
// empty for all.
func WriteDOT(w io.Writer, src Source, include ...string) error {
	included := includeSet(src, include)
	tasks := src.Tasks()
	groups := src.ParallelGroups()
	params := edgeParams(src)

	dependencies := make(map[string][]string)
	dependents := make(map[string][]string)
	for _, task := range tasks {
		if !included[task.Name] {
			continue
		}
		for _, dep := range task.DependsOn {
			if !included[dep] {
				continue
			}
			dependencies[task.Name] = append(dependencies[task.Name], dep)
			dependents[dep] = append(dependents[dep], task.Name)
		}
	}

	var sources, intermediates, sinks []string
	for _, task := range tasks {
		if !included[task.Name] {
			continue
		}
		switch {
		case len(dependencies[task.Name]) == 0:
			sources = append(sources, task.Name)
		case len(dependents[task.Name]) == 0:
			sinks = append(sinks, task.Name)
		default:
			intermediates = append(intermediates, task.Name)
		}
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  bgcolor=\"#FFFDF5\";\n")
	b.WriteString("  fontname=\"Arial\";\n")
	b.WriteString("  nodesep=0.5;\n")
	b.WriteString("  ranksep=0.8;\n")
	b.WriteString("  splines=curved;\n")
	b.WriteString("  labelloc=\"t\";\n")
	fmt.Fprintf(&b, "  label=\"NoLead Pipeline\\nGenerated: %s\";\n", time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("  fontsize=16;\n")
	b.WriteString("  node [shape=box, style=\"filled,rounded\", fontname=\"Arial\", fontsize=12, color=\"#999999\"];\n")
	b.WriteString("  edge [color=\"#666666\", arrowsize=0.8, penwidth=1.2, fontname=\"Arial\", fontsize=10];\n")

	b.WriteString("  // Source nodes\n")
	b.WriteString("  { rank=same;\n")
	for _, name := range sources {
		fmt.Fprintf(&b, "    %q [fillcolor=\"#CCFFCC\"];\n", name)
	}
	b.WriteString("  }\n")

	b.WriteString("  // Intermediate nodes\n")
	for _, name := range intermediates {
		fmt.Fprintf(&b, "  %q [fillcolor=\"#FFFFAA\"];\n", name)
	}

	b.WriteString("  // Sink nodes\n")
	b.WriteString("  { rank=same;\n")
	for _, name := range sinks {
		fmt.Fprintf(&b, "    %q [fillcolor=\"#CCECFF\"];\n", name)
	}
	b.WriteString("  }\n")

	if len(groups) > 0 {
		b.WriteString("  // Parallel task groups\n")
		callers := make([]string, 0, len(groups))
		for caller := range groups {
			callers = append(callers, caller)
		}
		sort.Strings(callers)
		for idx, caller := range callers {
			var members []string
			for _, m := range groups[caller] {
				if included[m] {
					members = append(members, m)
				}
			}
			if len(members) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  subgraph cluster_parallel_%d {\n", idx)
			b.WriteString("    label=\"Parallel Tasks\";\n")
			b.WriteString("    style=\"rounded,dashed\";\n")
			b.WriteString("    color=\"#5555AA\";\n")
			b.WriteString("    bgcolor=\"#F0F0FF\";\n")
			b.WriteString("    { rank=same;\n")
			for _, m := range members {
				fmt.Fprintf(&b, "      %q;\n", m)
			}
			b.WriteString("    }\n")
			b.WriteString("  }\n")
		}
	}

	b.WriteString("  // Edges\n")
	for _, task := range tasks {
		if !included[task.Name] {
			continue
		}
		for _, dep := range task.DependsOn {
			if !included[dep] {
				continue
			}
			var attrs []string
			if kv := params[edge{From: dep, To: task.Name}]; len(kv) > 0 {
				attrs = append(attrs, fmt.Sprintf("label=%q", formatParams(kv)))
			}
			if isParallelMember(groups, dep, task.Name) {
				attrs = append(attrs, "style=\"bold,dashed\"", "color=\"#5555AA\"")
			}
			if len(attrs) > 0 {
				fmt.Fprintf(&b, "  %q -> %q [%s];\n", dep, task.Name, strings.Join(attrs, " "))
			} else {
				fmt.Fprintf(&b, "  %q -> %q;\n", dep, task.Name)
			}
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a plain-text rendering of the dependency graph: the
// recorded parallel groups followed by one block per task listing its
// dependencies, with parallel markers and recovered edge parameters.
func WriteText(w io.Writer, src Source, include ...string) error {
	included := includeSet(src, include)
	tasks := src.Tasks()
	groups := src.ParallelGroups()
	params := edgeParams(src)

	var b strings.Builder
	b.WriteString("Pipeline Dependency Graph\n")
	b.WriteString("========================\n\n")

	if len(groups) > 0 {
		b.WriteString("Parallel Task Groups:\n")
		callers := make([]string, 0, len(groups))
		for caller := range groups {
			callers = append(callers, caller)
		}
		sort.Strings(callers)
		for idx, caller := range callers {
			var members []string
			for _, m := range groups[caller] {
				if included[m] {
					members = append(members, m)
				}
			}
			if len(members) > 0 {
				fmt.Fprintf(&b, "  Group %d: %s\n", idx+1, strings.Join(members, ", "))
			}
		}
		b.WriteString("\n")
	}

	for _, task := range tasks {
		if !included[task.Name] {
			continue
		}
		fmt.Fprintf(&b, "Task: %s\n", task.Name)

		var deps []string
		for _, dep := range task.DependsOn {
			if included[dep] {
				deps = append(deps, dep)
			}
		}
		if len(deps) == 0 {
			b.WriteString("  Dependencies: None\n\n")
			continue
		}
		b.WriteString("  Dependencies:\n")
		for _, dep := range deps {
			marker := ""
			if isParallelMember(groups, dep, task.Name) {
				marker = " [parallel]"
			}
			if kv := params[edge{From: dep, To: task.Name}]; len(kv) > 0 {
				fmt.Fprintf(&b, "    - %s%s (params: %s)\n", dep, marker, formatParams(kv))
			} else {
				fmt.Fprintf(&b, "    - %s%s\n", dep, marker)
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
