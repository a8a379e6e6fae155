package vfs

import "fmt"

// SeedMinimal populates an empty filesystem with the directory skeleton
// and identity files of a plausible Ubuntu server. Loading a tarball
// snapshot gives a richer tree; this is the fallback when none is
// configured.
func SeedMinimal(fs *FileSystem, hostname string) error {
	dirs := []struct {
		path string
		mode uint32
		uid  uint32
	}{
		{"/bin", 0o755, 0},
		{"/etc", 0o755, 0},
		{"/home", 0o755, 0},
		{"/opt", 0o755, 0},
		{"/proc", 0o555, 0},
		{"/root", 0o700, 0},
		{"/srv", 0o755, 0},
		{"/sys", 0o555, 0},
		{"/usr/bin", 0o755, 0},
		{"/usr/local/bin", 0o755, 0},
		{"/var/log", 0o755, 0},
		{"/var/www/html", 0o755, 33},
	}
	for _, d := range dirs {
		if err := fs.MkdirAll(d.path, d.mode, d.uid, d.uid); err != nil {
			return fmt.Errorf("seed %s: %w", d.path, err)
		}
	}
	if err := fs.MkdirAll("/tmp", 0o1777, 0, 0); err != nil {
		return fmt.Errorf("seed /tmp: %w", err)
	}

	files := []struct {
		path string
		data string
		mode uint32
	}{
		{"/etc/hostname", hostname + "\n", 0o644},
		{"/etc/passwd", "root:x:0:0:root:/root:/bin/bash\n" +
			"daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin\n" +
			"bin:x:2:2:bin:/bin:/usr/sbin/nologin\n" +
			"sys:x:3:3:sys:/dev:/usr/sbin/nologin\n" +
			"www-data:x:33:33:www-data:/var/www:/usr/sbin/nologin\n" +
			"sshd:x:110:65534::/run/sshd:/usr/sbin/nologin\n" +
			"ubuntu:x:1000:1000:Ubuntu:/home/ubuntu:/bin/bash\n", 0o644},
		{"/etc/hosts", "127.0.0.1 localhost\n127.0.1.1 " + hostname + "\n\n" +
			"::1     ip6-localhost ip6-loopback\nfe00::0 ip6-localnet\n" +
			"ff00::0 ip6-mcastprefix\nff02::1 ip6-allnodes\nff02::2 ip6-allrouters\n", 0o644},
		{"/etc/os-release", "NAME=\"Ubuntu\"\nVERSION=\"20.04.4 LTS (Focal Fossa)\"\n" +
			"ID=ubuntu\nID_LIKE=debian\nPRETTY_NAME=\"Ubuntu 20.04.4 LTS\"\n" +
			"VERSION_ID=\"20.04\"\nHOME_URL=\"https://www.ubuntu.com/\"\n" +
			"SUPPORT_URL=\"https://help.ubuntu.com/\"\n" +
			"BUG_REPORT_URL=\"https://bugs.launchpad.net/ubuntu/\"\n" +
			"PRIVACY_POLICY_URL=\"https://www.ubuntu.com/legal/terms-and-policies/privacy-policy\"\n" +
			"VERSION_CODENAME=focal\nUBUNTU_CODENAME=focal\n", 0o644},
		{"/etc/resolv.conf", "nameserver 127.0.0.53\noptions edns0 trust-ad\nsearch .\n", 0o644},
		{"/etc/shadow", "", 0o640},
		{"/var/log/auth.log", "", 0o640},
	}
	for _, f := range files {
		if _, err := fs.CreateFile(f.path, []byte(f.data), f.mode, 0, 0); err != nil {
			return fmt.Errorf("seed %s: %w", f.path, err)
		}
	}
	return nil
}
