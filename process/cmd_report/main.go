package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/sahiljoharle/Bucks-And-Balance/process/report"
)

func main() {
	email := flag.String("email", "", "account email to report on")
	month := flag.String("month", "", "month in YYYY-MM")
	list := flag.Bool("list", false, "also list the individual expense rows")
	flag.Parse()
	if *email == "" || *month == "" {
		log.Fatal("--email and --month are required")
	}
	_ = godotenv.Load()
	report.RunReport(*email, *month, *list)
}
