package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"usps-gateway/internal/app"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
)

const defaultTimeout = 30 * time.Second

// Env is what every command runs against
type Env struct {
	Out    io.Writer
	Config *config.Config
	NewApp func(cfg *config.Config) (*app.App, error)
}

func registerCommands(r *Registry) {
	r.Register(&Command{
		Name:        "config",
		Description: "Show the resolved configuration without secrets",
		Usage:       "uspsctl config",
		Run:         configCommand,
	})
	r.Register(&Command{
		Name:        "oauth",
		Description: "Obtain a bearer token for one or every API family",
		Usage:       "uspsctl oauth [family] [--timeout 30s]",
		Examples: []string{
			"uspsctl oauth",
			"uspsctl oauth labels",
		},
		Run: oauthCommand,
	})
	r.Register(&Command{
		Name:        "token",
		Description: "Fetch a family's bearer token and print its claims",
		Usage:       "uspsctl token <family> [--timeout 30s]",
		Examples:    []string{"uspsctl token prices"},
		Run:         tokenCommand,
	})
	r.Register(&Command{
		Name:        "test",
		Description: "Run the connection test of one or every configured client",
		Usage:       "uspsctl test [family] [--timeout 30s]",
		Examples: []string{
			"uspsctl test",
			"uspsctl test addresses",
		},
		Run: testCommand,
	})
	r.Register(&Command{
		Name:        "clear-cache",
		Description: "Drop cached bearer tokens and address lookups",
		Usage:       "uspsctl clear-cache",
		Run:         clearCacheCommand,
	})
}

// parseArgs parses the --timeout flag, before or after the positional
// family argument, and returns at most one positional
func parseArgs(name, usage string, args []string) (string, time.Duration, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", defaultTimeout, "Timeout for the whole command")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return "", 0, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		// flag stops at the first positional; resume after it
		positional = append(positional, args[0])
		args = args[1:]
	}

	switch len(positional) {
	case 0:
		return "", *timeout, nil
	case 1:
		return positional[0], *timeout, nil
	default:
		return "", 0, fmt.Errorf("usage: %s", usage)
	}
}

// families resolves the optional family argument
func families(name string) ([]usps.Family, error) {
	if name == "" {
		return usps.Families(), nil
	}
	f, err := usps.ParseFamily(name)
	if err != nil {
		return nil, err
	}
	return []usps.Family{f}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func configCommand(env *Env, args []string) error {
	a, err := env.NewApp(env.Config)
	if err != nil {
		return err
	}
	defer a.Cleanup()

	endpoints := usps.ResolveEndpoints(env.Config)
	clients := make(map[string]usps.Info)
	if a.Addresses != nil {
		clients[string(usps.FamilyAddresses)] = a.Addresses.ConfigInfo()
	}
	if a.Prices != nil {
		clients[string(usps.FamilyPrices)] = a.Prices.ConfigInfo()
	}
	if a.Payments != nil {
		clients[string(usps.FamilyPayments)] = a.Payments.ConfigInfo()
	}
	if a.Labels != nil {
		clients[string(usps.FamilyLabels)] = a.Labels.ConfigInfo()
	}
	if a.International != nil {
		clients[string(usps.FamilyInternationalLabels)] = a.International.ConfigInfo()
	}

	return printJSON(env.Out, map[string]interface{}{
		"environment": env.Config.Environment,
		"token_url":   endpoints.TokenURL,
		"token_cache": env.Config.TokenCache,
		"client_id":   logging.Redact(env.Config.Credentials.ClientID),
		"account": map[string]string{
			"crid":           env.Config.Account.CRID,
			"mid":            env.Config.Account.MID,
			"manifest_mid":   env.Config.Account.ManifestMID,
			"account_type":   env.Config.Account.AccountType,
			"account_number": logging.Redact(env.Config.Account.AccountNumber),
		},
		"clients": clients,
	})
}

func oauthCommand(env *Env, args []string) error {
	name, timeout, err := parseArgs("oauth", "uspsctl oauth [family]", args)
	if err != nil {
		return err
	}
	list, err := families(name)
	if err != nil {
		return err
	}

	a, err := env.NewApp(env.Config)
	if err != nil {
		return err
	}
	defer a.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tSTATUS\tEXPIRES IN\tSCOPE")
	failed := 0
	for _, f := range list {
		token, err := a.Tokens.Token(ctx, string(f), f.Scope())
		if err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tFAILED\t-\t%s\n", f, err.Error())
			continue
		}
		fmt.Fprintf(tw, "%s\tOK\t%s\t%s\n", f, time.Until(token.ExpiresAt).Round(time.Second), token.Scope)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d families failed to authenticate", failed, len(list))
	}
	return nil
}

func tokenCommand(env *Env, args []string) error {
	name, timeout, err := parseArgs("token", "uspsctl token <family>", args)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("usage: uspsctl token <family>")
	}
	family, err := usps.ParseFamily(name)
	if err != nil {
		return err
	}

	a, err := env.NewApp(env.Config)
	if err != nil {
		return err
	}
	defer a.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	token, err := a.Tokens.Token(ctx, string(family), family.Scope())
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"family":       string(family),
		"token_type":   token.TokenType,
		"token_length": len(token.Value),
		"expires_at":   token.ExpiresAt.UTC().Format(time.RFC3339),
	}
	claims, err := inspectClaims(token.Value)
	if err != nil {
		out["claims_error"] = err.Error()
	} else {
		out["claims"] = claims
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			out["claims_expire_at"] = exp.UTC().Format(time.RFC3339)
		}
	}
	return printJSON(env.Out, out)
}

// inspectClaims decodes a JWT's claims without verifying its signature.
// The token came straight from the issuer; only its contents are of interest.
func inspectClaims(value string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return nil, fmt.Errorf("token is not a readable JWT: %w", err)
	}
	return claims, nil
}

func testCommand(env *Env, args []string) error {
	name, timeout, err := parseArgs("test", "uspsctl test [family]", args)
	if err != nil {
		return err
	}
	list, err := families(name)
	if err != nil {
		return err
	}

	a, err := env.NewApp(env.Config)
	if err != nil {
		return err
	}
	defer a.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results := a.TestConnections(ctx)
	wanted := make(map[usps.Family]bool, len(list))
	for _, f := range list {
		wanted[f] = true
	}

	names := make([]string, 0, len(results))
	for f := range results {
		if wanted[f] {
			names = append(names, string(f))
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("no configured client for %s", name)
	}

	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tRESULT\tDETAIL")
	failed := 0
	for _, n := range names {
		res := results[usps.Family(n)]
		if res.Success {
			fmt.Fprintf(tw, "%s\tOK\t%v\n", n, res.Data["message"])
			continue
		}
		failed++
		fmt.Fprintf(tw, "%s\tFAILED (%d)\t%s\n", n, res.StatusCode, res.Error.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d connection tests failed", failed, len(names))
	}
	return nil
}

func clearCacheCommand(env *Env, args []string) error {
	a, err := env.NewApp(env.Config)
	if err != nil {
		return err
	}
	defer a.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := a.Tokens.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Cleared cached tokens")
	if a.Addresses != nil {
		if err := a.Addresses.ClearCache(ctx); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "Cleared address lookup cache")
	}
	return nil
}
