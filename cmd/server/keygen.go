package main

import (
	"fmt"

	"github.com/cargarage/execution-service/pkg/utils/keygen"
)

type KeygenCmd struct {
	Length int `help:"Key length in characters." default:"40"`
}

// Run prints a fresh admin API key for EXECUTION_AUTH_ADMIN_API_KEY.
func (k *KeygenCmd) Run() error {
	key, err := keygen.GenerateAPIKey(k.Length)
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}
