// Package redis holds the Redis-backed media cache used for deleted-message
// logs, together with the client hooks that meter and guard every command.
package redis
