package props_test

import (
	"fmt"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
)

// This example declares a small property set and reacts to changes.
func ExampleNewSet() {
	set, err := props.NewSet(nil, callqueue.New(),
		props.Boolean("verbose", false),
		props.Int("threads", props.NumberOptions{Default: 4, Min: 1, Max: 16}),
		props.Choice("mode", "fast", "accurate"),
	)
	if err != nil {
		panic(err)
	}

	set.AddListener("threads", "obs", func(value any, valid bool, ctx any, name string) {
		fmt.Printf("%s is now %v\n", name, value)
	}, false)

	set.Set("threads", 8)

	if err := set.Set("threads", 99); err != nil {
		fmt.Println("out of range:", err != nil)
	}

	mode, _ := set.Get("mode")
	fmt.Println("mode defaults to:", mode)

	// Output:
	// threads is now 8
	// out of range: true
	// mode defaults to: fast
}
