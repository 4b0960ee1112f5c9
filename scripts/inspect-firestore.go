//go:build ignore

// Dumps archived bulletins from Firestore.
//
// Usage: go run scripts/inspect-firestore.go --project boletin-iglesia --week 2026-02-01
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/spf13/pflag"
	"google.golang.org/api/iterator"
)

func main() {
	projectID := pflag.String("project", "boletin-iglesia", "GCP project ID")
	collection := pflag.String("collection", "bulletins", "Firestore collection name")
	week := pflag.String("week", "", "Show a single week (optional)")
	limit := pflag.Int("limit", 10, "Max documents to return (0 for all)")
	countOnly := pflag.Bool("count", false, "Only show announcement counts per week")
	pflag.Parse()

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()

	coll := client.Collection(*collection)

	if *week != "" {
		snap, err := coll.Doc(*week).Get(ctx)
		if err != nil {
			log.Fatalf("Error reading week %s: %v", *week, err)
		}
		printDoc(snap)
		return
	}

	query := coll.OrderBy("week_of", firestore.Desc)
	if *limit > 0 {
		query = query.Limit(*limit)
	}

	iter := query.Documents(ctx)
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Error iterating documents: %v", err)
		}

		if *countOnly {
			anns, _ := doc.Data()["announcements"].([]interface{})
			fmt.Printf("%-12s %d\n", doc.Ref.ID, len(anns))
		} else {
			printDoc(doc)
		}
		count++
	}

	fmt.Printf("Total weeks shown: %d\n", count)
}

func printDoc(doc *firestore.DocumentSnapshot) {
	jsonData, _ := json.MarshalIndent(doc.Data(), "", "  ")
	fmt.Printf("--- Week: %s ---\n%s\n\n", doc.Ref.ID, string(jsonData))
}
