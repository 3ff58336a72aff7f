// genhash imprime el hash bcrypt de una contraseña.
// Uso: go run ./cmd/genhash -cost 12 secreto123
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/MioNatsuki/sistema-emision/internal/service"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: genhash [-cost N] <password>")
		os.Exit(2)
	}
	h, err := service.NewBcryptHasher(*cost).Hash(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
