package main

import (
	"fmt"
	"os"

	"github.com/inxsource/sales-assistant-go/internal/util"
)

// Generates a business API token and the sha256 hash to store in the
// businesses.api_token_hash column.
func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token: %s\n", token)
	fmt.Printf("hash:  %s\n", util.HashToken(token))
}
