package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/pkg/store"
)

func main() {
	admin := flag.Bool("admin", false, "grant the administrator role")
	character := flag.String("character", "", "default character name (defaults to the username)")
	server := flag.String("server", "", "game server of the character")
	reset := flag.Bool("reset", false, "reset the password when the user already exists")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-admin] [-reset] [-character name] [-server name] <username> <password>")
		os.Exit(2)
	}
	username := flag.Arg(0)
	password := flag.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DB_DSN not set in environment")
	}
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open db")
	}
	st := store.New(db)

	if existing, err := st.UserByName(username); err == nil {
		if *reset {
			if len(password) < 6 {
				log.Fatal().Msg("password too short (min 6)")
			}
			if err := st.SetPassword(username, password); err != nil {
				log.Fatal().Err(err).Msg("reset failed")
			}
			fmt.Printf("password reset for user %s\n", username)
			return
		}
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	role := store.RoleUser
	if *admin {
		role = store.RoleAdmin
	}
	user, err := st.CreateUser(username, password, role)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user")
	}
	name := *character
	if name == "" {
		name = username
	}
	ch, err := st.EnsureCharacter(user.ID, name, *server)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create character")
	} else {
		fmt.Printf("created user %s id=%d character %q id=%d\n", username, user.ID, ch.Name, ch.ID)
		return
	}
	fmt.Printf("created user %s id=%d\n", username, user.ID)
}
