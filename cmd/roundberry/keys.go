package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var keysCount int

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage participant keys",
	Long:  `Commands for managing participant identity keys.`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate [output-file]",
	Short: "Generate participant keys",
	Long: `Generate Ed25519 keypairs for period participants. The account
address is derived from the public key.

If no output file is specified, the keys are printed to stdout.

Example:
  roundberry keys generate -n 4
  roundberry keys generate -n 4 participants.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeysGenerate,
}

var keysShowCmd = &cobra.Command{
	Use:   "show <key-file>",
	Short: "Show participant addresses from a key file",
	Long: `Display the addresses from a participant key file.

Example:
  roundberry keys show participants.json`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysShow,
}

func init() {
	keysGenerateCmd.Flags().IntVarP(&keysCount, "count", "n", 4, "number of keypairs to generate")
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}

// ParticipantKey represents a participant's keypair and derived address.
type ParticipantKey struct {
	PrivKey string `json:"priv_key"`
	PubKey  string `json:"pub_key"`
	Address string `json:"address"`
}

// addressFromPubKey derives the 0x-prefixed 20-byte account address from
// an Ed25519 public key.
func addressFromPubKey(pub ed25519.PublicKey) string {
	return "0x" + hex.EncodeToString(pub[:20])
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	if keysCount < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	keys := make([]ParticipantKey, 0, keysCount)
	for i := 0; i < keysCount; i++ {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		keys = append(keys, ParticipantKey{
			PrivKey: hex.EncodeToString(priv),
			PubKey:  hex.EncodeToString(pub),
			Address: addressFromPubKey(pub),
		})
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling keys: %w", err)
	}

	if len(args) == 0 {
		fmt.Println(string(data))
	} else {
		outputPath := args[0]
		if err := os.WriteFile(outputPath, data, 0600); err != nil {
			return fmt.Errorf("writing key file: %w", err)
		}
		fmt.Printf("Generated %d participant keys: %s\n", keysCount, outputPath)
	}
	for _, k := range keys {
		fmt.Fprintf(cmd.ErrOrStderr(), "Participant: %s\n", k.Address)
	}

	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	keyPath := args[0]

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("reading key file: %w", err)
	}

	var keys []ParticipantKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parsing key file: %w", err)
	}

	for i, k := range keys {
		fmt.Printf("Participant %d\n", i)
		fmt.Printf("  Public Key: %s\n", k.PubKey)
		fmt.Printf("  Address:    %s\n", k.Address)
	}

	return nil
}
