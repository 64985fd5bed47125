package main

import (
	"context"
	"testing"
	"time"

	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
)

func TestNewServerDefaults(t *testing.T) {
	srv := newServer(&appconfig.Config{Port: "9090", DispatchTimeout: 8 * time.Second}, nil)
	if srv.Addr != ":9090" {
		t.Fatalf("expected :9090, got %s", srv.Addr)
	}
	if srv.WriteTimeout != 15*time.Second {
		t.Fatalf("expected 15s write timeout, got %s", srv.WriteTimeout)
	}
}

func TestNewServerStretchesWriteTimeoutForDispatch(t *testing.T) {
	srv := newServer(&appconfig.Config{Port: "8080", DispatchTimeout: 20 * time.Second}, nil)
	if srv.WriteTimeout != 25*time.Second {
		t.Fatalf("expected 25s write timeout, got %s", srv.WriteTimeout)
	}
}

func TestAWSLoaderUsesStaticCredentials(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:          "us-west-2",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}
	awsCfg, err := awsLoader(cfg)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "us-west-2" {
		t.Fatalf("expected region us-west-2, got %s", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %s", creds.AccessKeyID)
	}
}
