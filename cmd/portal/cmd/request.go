package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carematch360/portal/internal/portal/app"
	"github.com/carematch360/portal/pkg/gateway"
)

func newRequestCmd(root *rootOptions) *cobra.Command {
	var (
		query   []string
		headers []string
		data    string
	)

	cmd := &cobra.Command{
		Use:   "request <target> <method> <path>",
		Short: "Send an authenticated request to a backend",
		Long: `Send one request through the session gateway and print the response
body. Targets: identity, profile, match, billing, notification.

The path is appended to the target's base URL as is, so escape dynamic
segments yourself.

Example:
  portal request match GET /matches/patient/42/top --query limit=5
  portal request notification PUT /notifications/7/read --data '{}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args, query, headers, data)
			if err != nil {
				return err
			}

			return withApp(cmd, root, func(ctx context.Context, a *app.Application) error {
				resp, err := a.Gateway().Dispatch(ctx, req)

				var derr *gateway.DomainError
				if errors.As(err, &derr) {
					_, _ = cmd.OutOrStdout().Write(derr.Body)
					return err
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "HTTP %d\n", resp.StatusCode)
				_, err = cmd.OutOrStdout().Write(resp.Body)
				return err
			})
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "header as 'Key: value' (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")

	return cmd
}

func buildRequest(args, query, headers []string, data string) (gateway.Request, error) {
	target, err := gateway.ParseTarget(args[0])
	if err != nil {
		return gateway.Request{}, err
	}

	path := args[2]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body any
	if data != "" {
		if !json.Valid([]byte(data)) {
			return gateway.Request{}, fmt.Errorf("--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	req, err := gateway.NewRequest(target, strings.ToUpper(args[1]), path, body)
	if err != nil {
		return gateway.Request{}, err
	}

	if len(query) > 0 {
		values := url.Values{}
		for _, kv := range query {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return gateway.Request{}, fmt.Errorf("invalid --query %q, want key=value", kv)
			}
			values.Add(k, v)
		}
		req = req.WithQuery(values)
	}

	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return gateway.Request{}, fmt.Errorf("invalid --header %q, want 'Key: value'", h)
		}
		req = req.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	return req, nil
}
