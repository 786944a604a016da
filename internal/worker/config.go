package worker

import (
	"os"
)

// Config holds worker configuration from the environment.
type Config struct {
	// ProjectID is the Pub/Sub project.
	ProjectID string

	// SubscriptionName is the job subscription to consume.
	SubscriptionName string

	// TopicName is the job topic to publish to.
	TopicName string

	// BucketURL addresses the artifact bucket (s3://, gs://, file://).
	BucketURL string
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		ProjectID:        getEnvOrDefault("PUBSUB_PROJECT_ID", "climatlas"),
		SubscriptionName: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "pipeline-jobs"),
		TopicName:        getEnvOrDefault("PUBSUB_TOPIC", "pipeline-jobs"),
		BucketURL:        getEnvOrDefault("ARTIFACT_BUCKET_URL", "file:///var/lib/climatlas/artifacts"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
