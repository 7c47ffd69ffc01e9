package storage

import "os"

// MinIOConfig is read straight from the environment. Photo storage is
// optional: main only wires a PhotoStore when MINIO_ENDPOINT is set, so an
// empty Endpoint here simply disables the photo routes.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func LoadMinIOConfig() *MinIOConfig {
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "donr"
	}
	return &MinIOConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
	}
}
