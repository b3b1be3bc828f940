// Package crawlscope provides an embedded Go client for exploring crawl
// datasets stored in Redis with the search module.
//
// The client runs the same session orchestration as the crawlscope API
// server, in process, without HTTP.
//
// # Datasets
//
//	client, _ := crawlscope.New(ctx, crawlscope.WithRedis("localhost:6379", ""))
//	defer client.Close()
//	_, _ = client.Datasets().Register(ctx, "ebola", "Ebola 2015", time.Time{})
//	_ = client.Datasets().Ingest(ctx, "ebola", []crawlscope.PageInput{
//	    {URL: "http://who.int/ebola", Text: "...", Phase: crawlscope.PhaseExplored},
//	})
//
// # Sessions
//
//	sessions := client.Sessions()
//	s, _ := sessions.Open(ctx)
//	_, _ = sessions.SwitchDataset(ctx, s.ID, "ebola")
//	_, _ = sessions.ApplyFilter(ctx, s.ID, `"west africa" vaccine`)
//	listing, _ := sessions.ListPages(ctx, s.ID)
//	_, _ = sessions.TagPages(ctx, s.ID, []string{listing.Pages[0].URL}, crawlscope.LabelRelevant, true)
//	terms, _ := sessions.ListTopTerms(ctx, s.ID, 20)
package crawlscope
