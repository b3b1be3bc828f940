// Package main provides crawlscopectl, the operator CLI for dataset registry
// and page ingestion.
package main

func main() {
	Execute()
}
