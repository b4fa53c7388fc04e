package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prospect/internal/logging"
	"prospect/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.jsonl>",
	Short: "Load evidence documents into the similarity store",
	Long: `Reads a JSON Lines file with one document per line:

  {"key": "doc:acme-profile", "title": "Acme AI", "content": "...", "metadata": {"url": "https://..."}}

Documents are embedded locally and upserted by key, so re-running an ingest
is idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

type ingestDoc struct {
	Key      string            `json:"key"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	st, err := openStore(loaded)
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open ingest file: %w", err)
	}
	defer f.Close()

	log := logging.New("ingest")
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	line, ingested, skipped := 0, 0, 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var doc ingestDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Warn("skipping malformed line", "line", line, "error", err)
			skipped++
			continue
		}
		if doc.Key == "" || doc.Content == "" {
			log.Warn("skipping document without key or content", "line", line)
			skipped++
			continue
		}
		_, err := st.AddDocument(cmd.Context(), store.Document{
			Key:      doc.Key,
			Title:    doc.Title,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("ingest line %d: %w", line, err)
		}
		ingested++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ingest file: %w", err)
	}

	total, err := st.CountDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d documents (%d skipped), corpus now %d\n", ingested, skipped, total)
	return nil
}
