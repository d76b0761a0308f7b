// Package static serves the public assets next to discovered routes.
//
// A Source opens files by relative name. DirSource reads a local directory
// and S3Source reads an S3 bucket through aws-sdk-go-v2:
//
//	src := static.NewS3Source(static.S3Config{
//	    Bucket: "my-assets",
//	    Region: "eu-west-1",
//	})
//	h := static.NewHandler(src, static.Options{HistoryMode: true})
//
// Request paths are sanitized with RelPath before a Source sees them.
package static
