package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bitwarden/akd-watch/internal/akdclient"
	"github.com/bitwarden/akd-watch/internal/app"
	"github.com/bitwarden/akd-watch/internal/config"
	"github.com/bitwarden/akd-watch/internal/obslog"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "akd-watch.yaml", "path to the configuration document")
	flag.Parse()

	log := obslog.New("akd-watch")
	defer obslog.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "akd-watch: %v\n", err)
		return 1
	}

	verifiers := akdclient.NewVerifierRegistry()
	// Production verify_consecutive_append_only bindings are registered
	// here per namespace configuration; left empty in this entrypoint
	// since the underlying AKD append-only cryptographic primitive is
	// supplied externally rather than reimplemented.

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsOpts := []func(*awsconfig.LoadOptions) error{}
	if accessKey := os.Getenv("AKD_WATCH_AWS_ACCESS_KEY_ID"); accessKey != "" {
		secretKey := os.Getenv("AKD_WATCH_AWS_SECRET_ACCESS_KEY")
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "akd-watch: load aws config: %v\n", err)
		return 1
	}
	bucket := os.Getenv("AKD_WATCH_BUCKET")
	directory := akdclient.NewS3DirectoryClient(s3.NewFromConfig(awsCfg), bucket)

	application, err := app.Build(ctx, cfg, app.Deps{
		Directory: directory,
		Verifiers: verifiers,
		Log:       log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "akd-watch: %v\n", err)
		return 1
	}

	go func() {
		<-ctx.Done()
		application.Shutdown()
	}()

	for _, err := range application.Run(ctx) {
		if err != nil {
			log.Warnw("worker exited with error", "error", err)
		}
	}
	return 0
}
