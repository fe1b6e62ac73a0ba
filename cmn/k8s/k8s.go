// Package k8s: runtime-environment detection and the container-aware path
// preferences named in spec §6 (DataPath, LogsPath, ConfigPath).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package k8s

import (
	"errors"
	"os"
	"strings"

	"github.com/nalix-net/nalix/cmn/debug"
	"github.com/nalix-net/nalix/cmn/nlog"
)

const (
	envNode = "NALIX_K8S_NODE"
	envPod  = "NALIX_K8S_POD"

	defaultPodNameEnv = "HOSTNAME"
)

const nonK8s = "non-Kubernetes deployment"

var (
	NodeName string // assigned upon successful initialization

	ErrK8sRequired = errors.New("the operation requires Kubernetes")
)

// Init detects whether the process runs inside a Kubernetes pod by
// attempting to build an in-cluster client and, on success, resolving the
// pod's node. Absence of a cluster (the common case for this runtime, which
// has no Kubernetes-specific feature of its own beyond path preference) is
// not an error: it just means IsK8s() reports false thereafter.
func Init() {
	client, err := newInClusterClient()
	if err != nil {
		nlog.Infoln(nonK8s, "(init k8s-client returned: '"+_short(err)+"')")
		return
	}

	var (
		nodeName = os.Getenv(envNode)
		podName  = os.Getenv(envPod)
	)
	if podName != "" {
		debug.Func(func() {
			pn := os.Getenv(defaultPodNameEnv)
			debug.Assertf(pn == "" || pn == podName, "%q vs %q", pn, podName)
		})
	} else {
		podName = os.Getenv(defaultPodNameEnv)
	}
	nlog.Infof("Checking pod: %q, node: %q", podName, nodeName)

	if nodeName == "" {
		if podName == "" {
			nlog.Infoln("environment (above) not set =>", nonK8s)
			return
		}
		pod, perr := client.Pod(podName)
		if perr != nil {
			nlog.Errorf("Failed to get pod %q: %v", podName, perr)
			return
		}
		nodeName = pod.Spec.NodeName
		nlog.Infoln("pod.Spec: Node", nodeName, "Hostname", pod.Spec.Hostname)
	}

	node, err := client.Node(nodeName)
	if err != nil {
		nlog.Errorf("Failed to get Node %q: %v", nodeName, err)
		return
	}
	NodeName = node.Name
}

func IsK8s() bool { return NodeName != "" }

// DataPath, LogsPath, and ConfigPath implement the container-aware root
// selection named in spec §6: prefer the conventional container mount when
// it exists, otherwise fall back to the caller-supplied default.
func DataPath(dflt string) string   { return preferred("/data", dflt) }
func LogsPath(dflt string) string   { return preferred("/logs", dflt) }
func ConfigPath(dflt string) string { return preferred("/config", dflt) }

func envOr(key, dflt string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return dflt
}

func preferred(containerPath, dflt string) string {
	if st, err := os.Stat(containerPath); err == nil && st.IsDir() {
		return containerPath
	}
	return dflt
}

func _short(err error) string {
	const sizeLimit = 32
	msg := err.Error()
	idx := strings.IndexByte(msg, ',')
	switch {
	case len(msg) < sizeLimit:
		return msg
	case idx > sizeLimit:
		return msg[:idx]
	default:
		return msg[:sizeLimit] + " ..."
	}
}
