// dashchart - render dashboard charts from SQL query results
package main

import (
	"os"

	"github.com/xen0bit/dashchart/cli"
)

func main() {
	os.Exit(cli.Run())
}
