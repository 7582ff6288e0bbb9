//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	notify_sdk "github.com/cydxin/notify-sdk"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// 打印每个模型 gorm 解析出的列和 MySQL 实际的列，排查 AutoMigrate 不一致时用。
//
// Usage:
//
//	export NOTIFY_DSN='user:pass@tcp(127.0.0.1:3306)/portal?charset=utf8mb4&parseTime=true&loc=Local'
//	go run ./scripts/print_gorm_schema.go
func main() {
	dsn := os.Getenv("NOTIFY_DSN")
	if dsn == "" {
		log.Fatal("NOTIFY_DSN is empty")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	for _, m := range notify_sdk.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			log.Fatalf("parse %T: %v", m, err)
		}
		table := stmt.Schema.Table

		fmt.Printf("=== %s (gorm) ===\n", table)
		for _, name := range sortedNames(stmt.Schema.FieldsByDBName) {
			f := stmt.Schema.FieldsByDBName[name]
			fmt.Printf("%s\t%s\t%s\n", f.DBName, stmt.DB.Dialector.DataTypeOf(f), f.Tag.Get("gorm"))
		}

		type col struct {
			Field string
			Type  string
			Null  string
			Key   string
		}
		var cols []col
		// Works on MySQL
		if err := db.Raw("SHOW COLUMNS FROM " + table).Scan(&cols).Error; err != nil {
			fmt.Printf("SHOW COLUMNS FROM %s failed: %v\n", table, err)
			continue
		}
		fmt.Printf("=== %s (mysql) ===\n", table)
		for _, c := range cols {
			fmt.Printf("%s\t%s\t%s\t%s\n", c.Field, c.Type, c.Null, c.Key)
		}
	}
}

func sortedNames(m map[string]*schema.Field) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
