// This program is a small wallet for a BTPC node. It keeps ML-DSA key
// seeds on disk and spends outputs through the node's public API.
package main

import "github.com/btpc/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
