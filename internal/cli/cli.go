// Package cli wires the threshold-key tooling into a command-line app: a
// trusted-dealer key split and a local signing session over the resulting key
// directory.
package cli

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/keygen"
	"github.com/tessella/tessella/sign"
)

// Automatically set through -ldflags
// Example: go install -ldflags "-X main.buildDate=$(date -u +%d/%m/%Y@%H:%M:%S) -X main.gitCommit=$(git rev-parse HEAD)"
var (
	version   = "master"
	gitCommit = "none"
	buildDate = "unknown"
)

var SetVersionPrinter sync.Once

var folderFlag = &cli.StringFlag{
	Name:    "folder",
	Value:   DefaultFolder(),
	Usage:   "Folder to keep all tessella key material, with absolute path.",
	EnvVars: []string{"TESSELLA_FOLDER"},
}

var verboseFlag = &cli.BoolFlag{
	Name:    "verbose",
	Usage:   "If set, verbosity is at the debug level",
	EnvVars: []string{"TESSELLA_VERBOSE"},
}

var jsonFlag = &cli.BoolFlag{
	Name:    "json",
	Usage:   "Set the output as json format",
	EnvVars: []string{"TESSELLA_JSON"},
}

var shareCountsFlag = &cli.StringFlag{
	Name:    "share-counts",
	Usage:   "Comma-separated share count per party, e.g. 1,2,3,4 for four parties holding ten shares in total.",
	EnvVars: []string{"TESSELLA_SHARE_COUNTS"},
}

var thresholdFlag = &cli.IntFlag{
	Name:    "threshold",
	Usage:   "Shares that reveal nothing about the key; any threshold+1 shares can sign.",
	EnvVars: []string{"TESSELLA_THRESHOLD"},
}

var secretKeyFlag = &cli.StringFlag{
	Name:    "secret-key",
	Usage:   "Hex-encoded 32-byte secp256k1 secret key to split. Handle with care; the dealer sees it in full.",
	EnvVars: []string{"TESSELLA_SECRET_KEY"},
}

var sessionFlag = &cli.StringFlag{
	Name:    "session",
	Usage:   "Session nonce separating the randomness of independent runs. A fresh one is drawn if not set.",
	EnvVars: []string{"TESSELLA_SESSION"},
}

var unsafeSizesFlag = &cli.BoolFlag{
	Name:    "unsafe-key-sizes",
	Usage:   "Generate reduced-size party keypairs. Only for tests and demos, never for real key material.",
	EnvVars: []string{"TESSELLA_UNSAFE_KEY_SIZES"},
}

var partyFlag = &cli.IntSliceFlag{
	Name:    "party",
	Usage:   "Party taking part in the signing session; repeat the flag for each one.",
	EnvVars: []string{"TESSELLA_PARTY"},
}

var digestFlag = &cli.StringFlag{
	Name:    "digest",
	Usage:   "Hex-encoded 32-byte prehashed message to sign.",
	Value:   strings.Repeat("2a", 32),
	EnvVars: []string{"TESSELLA_DIGEST"},
}

// DefaultFolder returns the default key directory, ~/.tessella.
func DefaultFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tessella"
	}
	return path.Join(home, ".tessella")
}

var appCommands = []*cli.Command{
	{
		Name: "ceygen",
		Usage: "Split an existing secp256k1 secret key into threshold shares with a local trusted dealer " +
			"and write them to the key folder.\n",
		Flags: toArray(folderFlag, shareCountsFlag, thresholdFlag, secretKeyFlag, sessionFlag, unsafeSizesFlag),
		Action: func(c *cli.Context) error {
			l := log.New(nil, logLevel(c), logJSON(c)).Named("ceygenCmd")
			return ceygenCmd(c, l)
		},
	},
	{
		Name: "sign",
		Usage: "Run a local signing session over the shares of the selected parties and print each share's " +
			"signature over the digest.\n",
		Flags: toArray(folderFlag, partyFlag, digestFlag),
		Action: func(c *cli.Context) error {
			l := log.New(nil, logLevel(c), logJSON(c)).Named("signCmd")
			return signCmd(c, l)
		},
	},
}

// CLI runs the tessella app
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "tessella"
	app.Version = version

	SetVersionPrinter.Do(func() {
		cli.VersionPrinter = func(c *cli.Context) {
			fmt.Fprintf(c.App.Writer, "tessella %s (date %v, commit %v)\n", version, buildDate, gitCommit)
		}
	})

	app.ExitErrHandler = func(context *cli.Context, err error) {
		// override to prevent default behavior of calling OS.exit(1),
		// when tests expect to be able to run multiple commands.
	}
	app.Usage = "threshold ECDSA key tooling"
	app.Commands = appCommands
	app.Flags = toArray(verboseFlag, jsonFlag)
	return app
}

func ceygenCmd(c *cli.Context, l log.Logger) error {
	counts, err := parseShareCounts(c.String(shareCountsFlag.Name))
	if err != nil {
		return err
	}
	if !c.IsSet(thresholdFlag.Name) {
		return fmt.Errorf("missing the --%s flag", thresholdFlag.Name)
	}
	threshold := c.Int(thresholdFlag.Name)

	var secret *secp256k1.ModNScalar
	if secretHex := c.String(secretKeyFlag.Name); secretHex != "" {
		secretBytes, err := hex.DecodeString(secretHex)
		if err != nil {
			return fmt.Errorf("decoding secret key: %w", err)
		}
		if secret, err = crypto.ScalarFromBytes(secretBytes); err != nil {
			return err
		}
	} else {
		if secret, err = crypto.RandomScalar(crand.Reader); err != nil {
			return err
		}
		l.Infow("no secret key given, generated a fresh one")
	}
	defer secret.Zero()

	session := c.String(sessionFlag.Name)
	if session == "" {
		session = uuid.NewString()
		l.Infow("drew a fresh session nonce", "session", session)
	}

	var shares *collections.IDMap[key.ShareSpace, *key.SecretKeyShare]
	if c.Bool(unsafeSizesFlag.Name) {
		l.Warnw("generating reduced-size party keypairs, do not use the result for real key material")
		shares, err = keygen.CeygenUnsafe(crand.Reader, counts, threshold, secret, []byte(session))
	} else {
		shares, err = keygen.Ceygen(crand.Reader, counts, threshold, secret, []byte(session))
	}
	if err != nil {
		return err
	}

	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return err
	}
	if err := keygen.WriteCeygenResults(store, counts, shares); err != nil {
		return err
	}

	first, err := shares.Get(collections.IDFromInt[key.ShareSpace](0))
	if err != nil {
		return err
	}
	groupKey, err := first.Group().Point().Bytes()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d shares for %d parties to %s\n", shares.Len(), counts.PartyCount(), store.Dir())
	fmt.Fprintf(c.App.Writer, "Group public key: %s\n", hex.EncodeToString(groupKey))
	return nil
}

func signCmd(c *cli.Context, l log.Logger) error {
	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return err
	}
	counts, err := store.LoadCounts()
	if err != nil {
		return err
	}

	selected := c.IntSlice(partyFlag.Name)
	if len(selected) == 0 {
		return fmt.Errorf("missing the --%s flag", partyFlag.Name)
	}
	subset := collections.NewSubset[key.PartySpace](counts.PartyCount())
	for _, p := range selected {
		if err := subset.Add(collections.IDFromInt[key.PartySpace](p)); err != nil {
			return err
		}
	}

	digestBytes, err := hex.DecodeString(c.String(digestFlag.Name))
	if err != nil {
		return fmt.Errorf("decoding digest: %w", err)
	}
	digest, err := crypto.MessageDigestFromBytes(digestBytes)
	if err != nil {
		return err
	}

	keygenIDs, err := counts.ShareIDSubset(subset)
	if err != nil {
		return err
	}
	protocols := make([]*sign.Protocol, 0, len(keygenIDs))
	for _, kid := range keygenIDs {
		share, err := store.LoadShare(kid)
		if err != nil {
			return err
		}
		p, err := sign.New(share, subset, &digest, l)
		if err != nil {
			return err
		}
		protocols = append(protocols, p)
	}

	if err := engine.ExecuteProtocol(l, collections.NewIDMap[sign.ShareSpace](protocols)); err != nil {
		return err
	}

	// verify every produced signature against the stored public commitments
	// before reporting success
	first, err := store.LoadShare(keygenIDs[0])
	if err != nil {
		return err
	}
	for i, p := range protocols {
		sig, err := p.Output().Result()
		if err != nil {
			return fmt.Errorf("share %s: %w", keygenIDs[i], err)
		}
		parsed, err := ecdsa.ParseDERSignature(sig)
		if err != nil {
			return fmt.Errorf("share %s: %w", keygenIDs[i], err)
		}
		info, err := first.Group().SharePublicInfo(keygenIDs[i])
		if err != nil {
			return err
		}
		pk, err := info.X.PubKey()
		if err != nil {
			return err
		}
		if !parsed.Verify(digest[:], pk) {
			return fmt.Errorf("share %s: signature does not verify", keygenIDs[i])
		}
		fmt.Fprintf(c.App.Writer, "share %d: %s\n", keygenIDs[i].AsInt(), hex.EncodeToString(sig))
	}
	fmt.Fprintf(c.App.Writer, "all %d signatures verified\n", len(protocols))
	return nil
}

func parseShareCounts(s string) (*key.PartyShareCounts, error) {
	if s == "" {
		return nil, fmt.Errorf("missing the --%s flag", shareCountsFlag.Name)
	}
	parts := strings.Split(s, ",")
	counts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing share counts %q: %w", s, err)
		}
		counts = append(counts, n)
	}
	return key.NewPartyShareCounts(counts)
}

func logLevel(c *cli.Context) int {
	if c.Bool(verboseFlag.Name) {
		return log.DebugLevel
	}
	return log.InfoLevel
}

func logJSON(c *cli.Context) bool {
	return c.Bool(jsonFlag.Name)
}

func toArray(flags ...cli.Flag) []cli.Flag {
	return flags
}
