// timelined-inspect dumps stored conversations and messages for
// offline debugging. Run it against a copy while the server is down;
// the store takes an exclusive lock.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"timelined/pkg/logger"
	"timelined/pkg/models"
	"timelined/pkg/store"
)

func main() {
	var (
		dbPath = flag.String("db", "./data/timelined", "store path")
		conv   = flag.Int64("conv", 0, "conversation id (0 lists all)")
		limit  = flag.Int("limit", 20, "messages to dump")
		before = flag.Int64("before", 0, "dump messages below this id")
	)
	flag.Parse()
	logger.Init("warn", "text")

	if err := store.Open(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *conv == 0 {
		ids, err := store.ListConversations()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list conversations: %v\n", err)
			os.Exit(1)
		}
		for _, id := range ids {
			snap, ok, err := store.LoadSnapshot(id)
			if err != nil || !ok {
				fmt.Printf("%d\t(no snapshot)\n", id)
				continue
			}
			fmt.Printf("%d\t%s\t%q\tunread=%d\ttop=%d\n",
				id, snap.Info.Kind, snap.Info.Title,
				snap.Dialog.UnreadCount, snap.Dialog.TopMessageID)
		}
		return
	}

	snap, ok, err := store.LoadSnapshot(*conv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load snapshot: %v\n", err)
		os.Exit(1)
	}
	if ok {
		b, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(b))
	}
	msgs, err := store.ListMessages(*conv, *limit, models.MsgID(*before))
	if err != nil {
		fmt.Fprintf(os.Stderr, "list messages: %v\n", err)
		os.Exit(1)
	}
	for _, m := range msgs {
		b, _ := json.Marshal(m)
		fmt.Println(string(b))
	}
}
