package config

import (
	"os"
	"strings"
)

// localTraceConfig archives traces to tmp/traces unless told otherwise, and
// points the s3 sink at the docker-compose MinIO.
func localTraceConfig() TraceConfig {
	return TraceConfig{
		Sink:      firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_SINK")), "dir"),
		Dir:       firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_DIR")), "tmp/traces"),
		Endpoint:  firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_ENDPOINT")), "minio:9000"),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")), "compass"),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")), "compass123"),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_BUCKET")), "compass-traces"),
		Prefix:    strings.TrimSpace(os.Getenv("TRACE_S3_PREFIX")),
		UseSSL:    false,
	}
}
