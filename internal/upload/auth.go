// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload mirrors a local output tree into Google Drive. Folder
// structure is recreated folder-by-folder; Drive addresses everything by
// ID, so each created folder's ID feeds the uploads beneath it.
package upload

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// Authenticate builds an authorized Drive client. A cached token at
// cfg.TokenFile is used when present; otherwise the user is walked through
// the OAuth consent flow on in/out and the resulting token is cached for
// next time. Expired tokens refresh transparently through the token source.
func Authenticate(ctx context.Context, cfg types.UploadConfig, in io.Reader, out io.Writer) (*drive.Service, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(data, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		tok, err = tokenFromConsent(ctx, oauthCfg, in, out)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			fmt.Fprintf(out, "warning: could not cache token: %v\n", err)
		}
	}

	srv, err := drive.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("building drive client: %w", err)
	}
	return srv, nil
}

// tokenFromConsent runs the out-of-band consent flow: print the URL, read
// the pasted authorization code, exchange it for a token.
func tokenFromConsent(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following link in your browser, then paste the authorization code:\n%s\n\ncode: ", authURL)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading authorization code: %w", err)
		}
		return nil, fmt.Errorf("no authorization code provided")
	}

	tok, err := cfg.Exchange(ctx, scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("parsing cached token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
