// Agent waits for the SSM agent on a freshly started instance to report that
// it is connected to Systems Manager.
//
// The Agent only observes: it never changes the instance and it never decides
// whether a run failed. Callers choose what an unreachable agent means.
package agent
