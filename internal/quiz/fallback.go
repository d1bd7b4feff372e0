package quiz

// Topics rotated for variety when asking the generator for a question.
var Topics = []string{
	"arrays", "strings", "linked lists", "stacks", "queues",
	"hashmaps", "binary search", "two pointers",
	"sorting", "heaps", "graphs bfs", "graphs dfs",
	"binary trees", "dynamic programming",
}

var Difficulties = []string{"easy", "medium"}

type fallbackEntry struct {
	text    string
	options []string
	correct int
}

// Static per-topic pool used whenever the generator misses its budget or
// keeps producing duplicates. Entries repeat across calls and do not
// participate in de-dup.
var fallbackPool = map[string]fallbackEntry{
	"stacks": {
		"Which data structure naturally supports undo operations due to LIFO behavior?",
		[]string{"Queue", "Stack", "Priority Queue", "Deque"}, 1},
	"binary search": {
		"What is the time complexity of binary search on a sorted array?",
		[]string{"O(n)", "O(log n)", "O(n log n)", "O(1)"}, 1},
	"graphs bfs": {
		"Breadth-First Search (BFS) typically uses which auxiliary structure?",
		[]string{"Stack", "Queue", "Priority Queue", "Set only"}, 1},
	"hashmaps": {
		"Average-case time for HashMap get(key) with a good hash function is:",
		[]string{"O(1)", "O(log n)", "O(n)", "O(n log n)"}, 0},
	"sorting": {
		"Which sorting algorithm is stable by default?",
		[]string{"Quick Sort", "Heap Sort", "Merge Sort", "Selection Sort"}, 2},
	"two pointers": {
		"Two-pointers is commonly used to find pairs with a target sum in a(n):",
		[]string{"Unsorted array", "Sorted array", "Binary tree", "Hash table"}, 1},
	"heaps": {
		"A binary max-heap supports extract-max in which time complexity?",
		[]string{"O(1)", "O(log n)", "O(n)", "O(n log n)"}, 1},
	"graphs dfs": {
		"Depth-First Search (DFS) is naturally implemented using:",
		[]string{"Queue", "Stack/Recursion", "Priority Queue", "Union-Find"}, 1},
	"binary trees": {
		"Inorder traversal of a Binary Search Tree yields keys in:",
		[]string{"Random order", "Descending order", "Ascending order", "Level order"}, 2},
	"dynamic programming": {
		"Dynamic Programming primarily trades space for:",
		[]string{"Readability", "Parallelism", "Time (by avoiding recomputation)", "I/O speed"}, 2},
}

var fallbackDefault = fallbackEntry{
	"Which algorithmic technique explores layer by layer in graphs?",
	[]string{"DFS", "BFS", "Dijkstra's algorithm", "Union-Find"}, 1,
}

// FallbackFor returns the deterministic local question for a topic. Unknown
// topics get the default entry. The returned Question carries a fresh ID.
func FallbackFor(topic string) Question {
	e, ok := fallbackPool[topic]
	if !ok {
		e = fallbackDefault
	}
	q := NewQuestion(e.text, e.options, e.correct)
	q.Topic = topic
	q.Source = SourceFallback
	return q
}
