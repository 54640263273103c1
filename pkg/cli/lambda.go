package cli

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdLambda() *cli.Command {
	var appCfg appConfig

	return &cli.Command{
		Name:  "lambda",
		Usage: "Serve the HTTP API as an AWS Lambda API Gateway proxy handler",
		Flags: appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			httpHandler, closer, err := appCfg.newServer(ctx)
			if err != nil {
				return err
			}
			defer closer()

			adapter := httpadapter.New(httpHandler)

			logging.Default().Info("Starting Lambda handler")
			lambda.StartWithOptions(adapter.ProxyWithContext, lambda.WithContext(ctx))
			return nil
		},
	}
}
