package main

import "fmt"

const version = "0.3.0"

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("dbcodec version %s\n", version)
	fmt.Println("PostgreSQL and MySQL value marshalling")
}

// PrintHelp prints comprehensive help information
func PrintHelp() {
	fmt.Println("dbcodec - dialect value marshalling for PostgreSQL and MySQL")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Println("USAGE:")
	fmt.Println("  dbcodec [command] [options] [args]")
	fmt.Println()

	fmt.Println("COMMANDS:")
	fmt.Println("    --probe                    Check connection liveness")
	fmt.Println("    --query <sql>              Run query, print rows as JSON lines")
	fmt.Println("    --toggles                  Print runtime toggle table")
	fmt.Println()

	fmt.Println("OPTIONS:")
	fmt.Println("    --config <file>            Configuration file (default: config.yaml)")
	fmt.Println("    --probe-sql <sql>          Probe statement (empty = driver validity check)")
	fmt.Println("    --timeout <duration>       Probe timeout, e.g. 2s")
	fmt.Println("    --types <names>            Column type names for query parameters")
	fmt.Println("    --set <name=value>         Set runtime toggle (true, false, nil); repeatable")
	fmt.Println("    --verbose                  Debug logging")
	fmt.Println()

	fmt.Println("CONFIGURATION:")
	fmt.Println("    --create-config-pg         Create sample PostgreSQL config")
	fmt.Println("    --create-config-mysql      Create sample MySQL config")
	fmt.Println()

	fmt.Println("TOGGLES:")
	fmt.Println("    postgresql.array.raw       Arrays as raw driver values")
	fmt.Println("    postgresql.hstore.raw      hstore as raw driver values")
	fmt.Println("    postgresql.interval.raw    Intervals as driver text")
	fmt.Println("    postgresql.generated_keys  Request generated keys after insert")
	fmt.Println("    mysql.stop_cleanup_thread  Stop driver cleanup thread (nil = no)")
	fmt.Println("    mysql.kill_cancel_timer    Stop cancel timer (nil = by driver version)")
	fmt.Println()
	fmt.Println("  Each toggle can also be set from the environment, e.g.")
	fmt.Println("  DBCODEC_POSTGRESQL_ARRAY_RAW=true")
	fmt.Println()

	fmt.Println("EXAMPLES:")
	fmt.Println("  dbcodec --create-config-pg")
	fmt.Println("  dbcodec --config pg.yaml --probe --probe-sql 'SELECT 1' --timeout 2s")
	fmt.Println("  dbcodec --config pg.yaml --query 'SELECT $1::bit(8), $2::interval' --types bit,interval a3 '1 year 2 mons'")
	fmt.Println("  dbcodec --config my.yaml --set mysql.kill_cancel_timer=false --query 'SELECT NOW(), ?' '\\N'")
	fmt.Println()
}
