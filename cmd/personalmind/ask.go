package main

import (
	"fmt"
	"strings"

	"github.com/poiesic/personalmind/chat"
	"github.com/urfave/cli/v2"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a question about your documents",
		ArgsUsage: "<question...>",
		Action:    askAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of chunks retrieved as context (overrides config)",
			},
		},
	}
}

func askAction(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	topK := cfg.Chat.TopK
	if c.IsSet("top-k") {
		topK = c.Int("top-k")
	}
	service, err := db.NewChatService(chat.WithTopK(topK))
	if err != nil {
		return err
	}

	reply, err := service.Process(c.Context, question)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, reply.Text)
	if len(reply.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nSources:")
	for _, id := range reply.Sources {
		doc, err := db.DocumentRepository().GetDocument(c.Context, id)
		if err != nil {
			fmt.Fprintf(w, "  [%d]\n", id)
			continue
		}
		fmt.Fprintf(w, "  [%d] %s (%s)\n", id, doc.Title, doc.Path)
	}
	return nil
}
