package sequence_test

import (
	"fmt"

	"github.com/born-ml/gradnet/sequence"
)

func ExampleEncoder() {
	enc := sequence.NewEncoder(sequence.Bytes{}, 4)
	steps, err := enc.Encode("ab")
	if err != nil {
		panic(err)
	}
	for _, s := range steps {
		fmt.Println(s.Data())
	}
	fmt.Println(sequence.Argmax(steps, 0))
	// Output:
	// [0 1 0 0]
	// [0 0 1 0]
	// [1 2]
}
