// Package docrag embeds the docrag question-answering pipeline in a Go program
// without running the HTTP service.
//
// The client reads a flat directory of .txt, .md, .pdf and .docx files, builds an
// in-memory vector index on first use and answers queries either directly from the
// language model or grounded in the retrieved document passages.
//
//	client, _ := docrag.New(ctx,
//	    docrag.WithDocumentsDir("./documents"),
//	    docrag.WithEmbedder(myEmbedder),
//	    docrag.WithCompleter(myCompleter),
//	)
//	defer client.Close()
//
//	ans, _ := client.Query(ctx, "What does the contract say about termination?")
//	fmt.Println(ans.Text)
//	for _, s := range ans.Sources {
//	    fmt.Println(s.Name, s.Page, s.Score)
//	}
//
// Reindex rebuilds the index from the current directory contents; Watch does so
// automatically whenever an eligible file changes.
package docrag
