package database

// To regenerate schema.sql, the reference copy of the catalog schema:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
