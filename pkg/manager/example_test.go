package manager_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/vnykmshr/stageflow/pkg/adapter"
	"github.com/vnykmshr/stageflow/pkg/manager"
	"github.com/vnykmshr/stageflow/pkg/pipeline"
)

// Example demonstrates registering an adapter and dispatching to it.
func Example() {
	m := manager.New()
	defer m.Close()

	a := adapter.NewRecord("json")
	if err := m.Register(a); err != nil {
		fmt.Println(err)
		return
	}

	out, err := m.Dispatch(context.Background(), "json", map[string]interface{}{
		"value": 23.5,
		"unit":  "C",
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	record := out.(map[string]interface{})
	fmt.Printf("validated: %v\n", record["validated"])
	fmt.Println(a.Summary())

	// Output:
	// validated: true
	// processed reading: 23.5°C
}

// Example_chaining demonstrates ordered chaining across pipelines, with
// missing identifiers skipped.
func Example_chaining() {
	m := manager.New()
	defer m.Close()

	clean := pipeline.New("clean")
	clean.AddStageFunc("trim", func(_ context.Context, input interface{}) (interface{}, error) {
		return strings.TrimSpace(input.(string)), nil
	})

	shout := pipeline.New("shout")
	shout.AddStageFunc("upper", func(_ context.Context, input interface{}) (interface{}, error) {
		return strings.ToUpper(input.(string)), nil
	})

	m.Register(clean)
	m.Register(shout)

	// "archive" is not registered; the chain skips it.
	out := m.Chain(context.Background(), "  hello  ", "clean", "archive", "shout")
	fmt.Println(out)

	// Output:
	// HELLO
}
