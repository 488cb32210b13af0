// Comando devtoken emite JWTs para testes locais da API.
//
//	go run ./cmd/devtoken -role branch -user u-1 -branch b-1
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/token"
)

func main() {
	_ = godotenv.Load()

	var (
		role     string
		userID   string
		branchID string
		expiry   time.Duration
	)
	flag.StringVar(&role, "role", string(domain.RoleManager), "papel: admin, manager ou branch")
	flag.StringVar(&userID, "user", "", "ID do usuário (padrão: UUID aleatório)")
	flag.StringVar(&branchID, "branch", "", "filial do usuário (obrigatório para branch)")
	flag.DurationVar(&expiry, "expiry", time.Hour, "validade do token")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY deve ser definida")
	}
	if !domain.UserRole(role).Valid() {
		log.Fatalf("papel desconhecido: %q", role)
	}
	if domain.UserRole(role) == domain.RoleBranch && branchID == "" {
		log.Fatal("-branch é obrigatório para o papel branch")
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	tok, err := token.NewService(secret, expiry).GenerateToken(userID, role, branchID)
	if err != nil {
		log.Fatalf("falha ao gerar token: %v", err)
	}
	fmt.Println(tok)
}
