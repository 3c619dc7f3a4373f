package viz

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ruivieira/nolead"
)

// WriteTaskInfo writes a detailed report for one task: its function, the
// parallel groups it belongs to, its dependencies and its dependents, each
// annotated with the parameter values recovered from cache keys.
func WriteTaskInfo(w io.Writer, src Source, name string) error {
	var info *nolead.TaskInfo
	tasks := src.Tasks()
	for i := range tasks {
		if tasks[i].Name == name {
			info = &tasks[i]
			break
		}
	}
	if info == nil {
		return &nolead.TaskNotFoundError{Name: name}
	}

	groups := src.ParallelGroups()
	params := edgeParams(src)

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", info.Name)
	funcName := info.FuncName
	if funcName == "" {
		funcName = "None"
	}
	fmt.Fprintf(&b, "Function: %s\n", funcName)

	var memberOf [][]string
	for _, members := range groups {
		for _, m := range members {
			if m == name {
				memberOf = append(memberOf, members)
				break
			}
		}
	}
	if len(memberOf) > 0 {
		b.WriteString("Parallel Groups:\n")
		for _, members := range memberOf {
			sorted := append([]string(nil), members...)
			sort.Strings(sorted)
			fmt.Fprintf(&b, "  - %s\n", strings.Join(sorted, ", "))
		}
	}

	fmt.Fprintf(&b, "Dependencies (%d):\n", len(info.DependsOn))
	for _, dep := range info.DependsOn {
		marker := ""
		if isParallelMember(groups, dep, name) {
			marker = " [parallel]"
		}
		if kv := params[edge{From: dep, To: name}]; len(kv) > 0 {
			fmt.Fprintf(&b, "  - %s%s (params: %s)\n", dep, marker, formatParams(kv))
		} else {
			fmt.Fprintf(&b, "  - %s%s\n", dep, marker)
		}
	}

	var dependents []string
	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if dep == name {
				dependents = append(dependents, task.Name)
			}
		}
	}
	sort.Strings(dependents)
	fmt.Fprintf(&b, "Dependents (%d):\n", len(dependents))
	for _, dependent := range dependents {
		if kv := params[edge{From: name, To: dependent}]; len(kv) > 0 {
			fmt.Fprintf(&b, "  - %s (params: %s)\n", dependent, formatParams(kv))
		} else {
			fmt.Fprintf(&b, "  - %s\n", dependent)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
