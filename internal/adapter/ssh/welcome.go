package ssh

import (
	"fmt"
	"math/rand"
	"time"
)

// generateWelcome renders the Ubuntu-style MOTD with randomized system
// statistics. Fresh numbers on every login make the box look busy
// without having to keep real state.
func generateWelcome(description string) string {
	load := 0.01 + rand.Float64()*2.49
	diskUsage := 15.0 + rand.Float64()*80.0
	diskSize := 25.0 + rand.Float64()*95.0
	memUsage := 20 + rand.Intn(66)
	swapUsage := rand.Intn(26)
	processes := 80 + rand.Intn(171)
	usersLoggedIn := 1 + rand.Intn(5)

	eth0 := fmt.Sprintf("10.0.%d.%d", 1+rand.Intn(254), 1+rand.Intn(254))
	docker0 := fmt.Sprintf("172.17.%d.%d", rand.Intn(255), 1+rand.Intn(254))

	now := time.Now().Format("Mon Jan _2 15:04:05 2006")

	return fmt.Sprintf("\n\nWelcome to %s\r\n"+
		"\r\n"+
		" * Documentation:  https://help.ubuntu.com\r\n"+
		" * Management:     https://landscape.canonical.com\r\n"+
		" * Support:        https://ubuntu.com/advantage\r\n"+
		"\r\n"+
		"  System information as of %s\r\n"+
		"\r\n"+
		"  System load:  %.2f              Users logged in:        %d\r\n"+
		"  Usage of /:   %.1f%% of %.2fGB  IP address for eth0:    %s\r\n"+
		"  Memory usage: %d%%               IP address for docker0:  %s\r\n"+
		"  Swap usage:   %d%%                \r\n"+
		"  Processes:    %d\r\n"+
		"\r\n"+
		"Last login: %s from 192.168.1.5\r\n",
		description, now, load, usersLoggedIn, diskUsage, diskSize, eth0,
		memUsage, docker0, swapUsage, processes, now)
}
