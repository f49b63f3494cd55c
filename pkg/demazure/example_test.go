package demazure_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/demazure/pkg/demazure"
	"github.com/matzehuels/demazure/pkg/perm"
)

func ExampleProduct() {
	w, _ := demazure.Product(3, perm.Word{1, 1, 2})
	fmt.Println(w, w.Length())
	// Output: 2,3,1 2
}

func ExampleSubwordsMultiplyingTo() {
	ev, _ := demazure.NewEvaluator(3)
	q := perm.Word{1, 2, 1}
	subs, _ := demazure.SubwordsMultiplyingTo(context.Background(), ev, q, perm.MustNew(2, 1, 3), demazure.SearchOptions{})
	for _, s := range subs {
		fmt.Println(s, s.Of(q))
	}
	// Output:
	// {1} (1)
	// {1,3} (1,1)
	// {3} (1)
}

func ExampleNonReducedSubwordImages() {
	ev, _ := demazure.NewEvaluator(3)
	images, _ := demazure.NonReducedSubwordImages(context.Background(), ev, perm.Word{1, 1})
	fmt.Println(images)
	// Output: [2,1,3]
}
