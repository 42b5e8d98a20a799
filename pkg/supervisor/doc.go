/*
Package supervisor is a single-host OS-process manager. It plays the
role the teacher's containerd runtime client plays for containers, but
for plain child processes: an in-memory process table guarded by a
sync.RWMutex, with Start/Stop/Delete/Describe/List operations that wrap
os/exec.

Processes are named by supervisor_name, the first 16 hex characters of
a branch_hash. Reload stops a process and starts it again from the spec
it was first started with, so its environment is unchanged. The
controller deploys with Delete followed by Start instead, so every
deploy runs with a freshly computed environment map (decrypted secrets,
contract address).

Every method takes a context, which none of them consult. Start,
Describe, List, and Logs work on the in-memory process table and return
without waiting; Stop (and Delete and Reload, which call it) waits up to
DefaultTimeout after SIGTERM before sending SIGKILL.
*/
package supervisor
