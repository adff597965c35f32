// Command lambda serves the contact relay as an AWS Lambda function behind
// API Gateway. Rate limits are per warm instance unless
// RATE_LIMIT_BACKEND=redis.
package main

import (
	"contact-relay/internal/factory"
	"contact-relay/internal/lambdaproxy"
	"contact-relay/internal/util"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	util.Info("Starting Lambda handler", util.String("relay_path", f.Config().Relay.Path))
	lambda.Start(lambdaproxy.New(f.Router("contact-relay")).Handle)
}
