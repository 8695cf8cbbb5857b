// hashpassword produit la valeur de ADMIN_PASSWORD_HASH (argon2id).
//
//	go run ./cmd/hashpassword 'mot de passe'
//	echo -n 'mot de passe' | go run ./cmd/hashpassword
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"storefront_back_end/internal/utils"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("❌ Lecture du mot de passe impossible : %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		log.Fatal("❌ Mot de passe vide")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("❌ Erreur hachage : %v", err)
	}
	fmt.Println(hash)
}
