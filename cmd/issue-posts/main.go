/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import "os"

func main() {
	os.Exit(Execute())
}
