// Package files locates raw flight statistics extracts on disk.
//
// Discovery lists the .csv, .txt, .tsv and .xlsx files of a directory,
// newest first, and resolves a directory argument to its latest extract:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	path, err := discovery.ResolveExtract("incoming")
package files
