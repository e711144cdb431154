package sharedb_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sharedb/pkg/sharedb"
)

func Example() {
	dir, err := os.MkdirTemp("", "sharedb-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := sharedb.Open(filepath.Join(dir, "inventory"), sharedb.WithBufferSize(1000))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	db.Set("apples", 3)
	db.MultiSet(sharedb.PairsOf("pears", 5, "plums", 0))

	n, _ := db.Get("apples", 0)
	fmt.Println("apples:", n)

	missing, _ := db.Get("kiwis", "none")
	fmt.Println("kiwis:", missing)

	for it, err := range db.Items() {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(it.Key, it.Value)
	}
	// Output:
	// apples: 3
	// kiwis: none
	// pears 5
	// plums 0
	// apples 3
}

func ExampleStore_MultiPop() {
	dir, _ := os.MkdirTemp("", "sharedb-example")
	defer os.RemoveAll(dir)

	db, err := sharedb.Open(filepath.Join(dir, "queue"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	db.MultiSet(sharedb.PairsOf("a", "first", "b", "second"))

	_, err = db.MultiPop(sharedb.KeysOf("a", "b", "c"))
	fmt.Println(err)

	n, _ := db.Len()
	fmt.Println("still stored:", n)
	// Output:
	// sharedb: multipop aborted at element 2 (key c of type string): sharedb: multipop: key c of type string is absent
	// still stored: 2
}

func ExampleTyped() {
	dir, _ := os.MkdirTemp("", "sharedb-example")
	defer os.RemoveAll(dir)

	db, err := sharedb.Open(filepath.Join(dir, "scores"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	scores := sharedb.Typed[string, int](db)
	scores.Set("ada", 36)

	v, ok, _ := scores.Get("ada")
	fmt.Println(v+1, ok)
	// Output: 37 true
}
