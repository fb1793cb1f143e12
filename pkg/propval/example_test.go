package propval_test

import (
	"fmt"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

// This example shows how to create a validated value and observe changes.
func ExampleNew() {
	queue := callqueue.New()

	threshold := propval.New(nil, propval.Options{
		Name:  "threshold",
		Value: 0.5,
		Validate: func(ctx any, attrs map[string]any, value any) error {
			if f := value.(float64); f < 0 || f > 1 {
				return fmt.Errorf("must lie in [0, 1]")
			}
			return nil
		},
		Queue: queue,
	})

	threshold.AddListener("obs", func(value any, valid bool, ctx any, name string) {
		fmt.Printf("%s changed to %v\n", name, value)
	}, false)

	threshold.Set(0.75)

	if err := threshold.Set(1.5); err != nil {
		fmt.Println("rejected:", err != nil)
	}

	fmt.Println("current:", threshold.Get())

	// Output:
	// threshold changed to 0.75
	// rejected: true
	// current: 0.75
}

// This example shows two values kept in sync through a binding. Writes to
// either side propagate to the other without feeding back.
func ExampleBind() {
	queue := callqueue.New()

	a := propval.New(nil, propval.Options{Name: "a", Value: 1, Queue: queue})
	b := propval.New(nil, propval.Options{Name: "b", Value: 2, Queue: queue})

	if err := propval.Bind(a, b, nil); err != nil {
		panic(err)
	}

	// Binding pushed a's state onto b.
	fmt.Println("after bind:", a.Get(), b.Get())

	b.Set(7)
	fmt.Println("after set: ", a.Get(), b.Get())

	// Output:
	// after bind: 1 1
	// after set:  7 7
}
