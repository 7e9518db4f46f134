package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/socguard/internal/buildinfo"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/cryptox"
	"github.com/dmitrijs2005/socguard/internal/flagx"
	"github.com/dmitrijs2005/socguard/internal/server"
	"github.com/dmitrijs2005/socguard/internal/server/config"
)

// hashRequested reports whether -hash was passed. The secret is then read
// from stdin so it never shows up in the process list.
func hashRequested() bool {
	var hash bool
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.BoolVar(&hash, "hash", false, "print salt and verifier for a secret read from stdin")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-hash"}))
	return hash
}

func printHash() error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read secret: %w", err)
	}
	secret := []byte(strings.TrimRight(line, "\r\n"))
	defer common.WipeByteArray(secret)

	salt, verifier := cryptox.NewVerifier(secret)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{
		"salt":     hex.EncodeToString(salt),
		"verifier": hex.EncodeToString(verifier),
	})
}

func main() {

	if hashRequested() {
		if err := printHash(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
