// Command heroapps serves the Hero Apps REST API over a MongoDB collection.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
