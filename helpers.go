package main

import (
	"log"
	"os"
	"sort"

	"github.com/pdfmark/pdfmark/annot"
)

func endIfErr(e error) {
	if e != nil {
		eLog := log.New(os.Stderr, "", 0)
		eLog.Fatalln(e)
	}
}

// annotatedPages returns the distinct annotated page numbers in ascending
// order, capped to the document's page count. Falls back to page 1 when the
// store is empty.
func annotatedPages(store *annot.Store, numPages int) []int {
	seen := map[int]bool{}
	for _, a := range store.Snapshot() {
		if a.PageNumber >= 1 && a.PageNumber <= numPages {
			seen[a.PageNumber] = true
		}
	}

	if len(seen) == 0 {
		return []int{1}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	return pages
}
