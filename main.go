// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/miramas-sig/adressage/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
